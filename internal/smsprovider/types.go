package smsprovider

// MessageError is the provider's JSON error body on a failed send.
type MessageError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
	Status   int    `json:"status"`
}
