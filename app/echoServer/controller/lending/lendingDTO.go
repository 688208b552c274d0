package lending

type BorrowReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
	// Days defaults to 14 when omitted.
	Days int `json:"days" validate:"omitempty,gt=0,lte=365"`
}

type ReturnReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}
