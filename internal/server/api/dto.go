package api

// Wire DTOs. The client defines its own mirror of these shapes; the JSON
// field names are the contract.

type credentialsRequest struct {
	Login    string `json:"login" validate:"required,min=3,max=254"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type changesResponse struct {
	Documents []map[string]any `json:"documents"`
}

type batchRequest struct {
	Documents []map[string]any `json:"documents" validate:"required"`
}

type writeOutcome struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Outcomes []writeOutcome `json:"outcomes"`
}

type errorResponse struct {
	Error string `json:"error"`
}
