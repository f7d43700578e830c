package check

type CheckInput struct {
	URL string `query:"url" form:"url" json:"url" validate:"required"`
}

type InvalidPayload struct {
	URL    string `json:"url"`
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
