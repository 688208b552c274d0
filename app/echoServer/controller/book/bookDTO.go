package book

type CreateBookReq struct {
	Title         string  `json:"title" validate:"required"`
	Author        string  `json:"author" validate:"required"`
	ISBN          *string `json:"isbn" validate:"omitempty,min=10,max=20"`
	Genre         string  `json:"genre"`
	ShelfLocation string  `json:"shelf_location"`
}

type UpdateBookReq struct {
	Title         *string `json:"title" validate:"omitempty,min=1"`
	Author        *string `json:"author" validate:"omitempty,min=1"`
	ISBN          *string `json:"isbn" validate:"omitempty,min=10,max=20"`
	Genre         *string `json:"genre"`
	ShelfLocation *string `json:"shelf_location"`
	Available     *bool   `json:"available"`
}
