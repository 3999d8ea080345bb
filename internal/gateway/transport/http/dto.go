package http

// SendTextRequestDTO is the body for POST /send.
type SendTextRequestDTO struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
}

// SendImageRequestDTO is the JSON body for POST /send/image when the
// image is referenced by URL instead of uploaded.
type SendImageRequestDTO struct {
	To       string `json:"to" validate:"required"`
	Caption  string `json:"caption"`
	ImageURL string `json:"imageUrl" validate:"required,url"`
}

// SendDocumentRequestDTO is the JSON body for POST /send/document when
// the document is referenced by URL instead of uploaded.
type SendDocumentRequestDTO struct {
	To          string `json:"to" validate:"required"`
	DocumentURL string `json:"documentUrl" validate:"required,url"`
	FileName    string `json:"fileName"`
	Mimetype    string `json:"mimetype"`
}

// ContactRequestDTO is the body for contact upserts.
type ContactRequestDTO struct {
	Name   string   `json:"name" validate:"required"`
	MSISDN string   `json:"msisdn" validate:"required_without=JID"`
	JID    string   `json:"jid" validate:"required_without=MSISDN"`
	Tags   []string `json:"tags"`
}

// GroupAliasRequestDTO is the body for group alias upserts.
type GroupAliasRequestDTO struct {
	Name string `json:"name" validate:"required"`
	JID  string `json:"jid" validate:"required,endswith=@g.us"`
}
