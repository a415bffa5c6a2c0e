package model

type ErrorResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type AuthLogoutResponse struct {
	Status string `json:"status"`
}
