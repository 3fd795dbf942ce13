package request

type CreateAccountRequest struct {
	Name   string `json:"name"`
	Broker string `json:"broker,omitempty"`
	Number string `json:"number,omitempty"`
}

type UpdateAccountRequest struct {
	Name   *string `json:"name,omitempty"`
	Broker *string `json:"broker,omitempty"`
	Number *string `json:"number,omitempty"`
}
