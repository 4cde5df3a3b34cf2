package service

type CategoryRequest struct {
	Name  string `json:"name" validate:"required,max=100"`
	Color string `json:"color" validate:"required,hexcolor"`
}

func ValidateCategoryRequest(req *CategoryRequest) error {
	return validate.Struct(req)
}
