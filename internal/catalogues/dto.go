package catalogues

// CreateCatalogueInput carries the fields accepted when creating a catalogue.
type CreateCatalogueInput struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Slug        string  `json:"slug" validate:"omitempty,min=3,max=60"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,url"`
	WhatsApp    *string `json:"whatsapp" validate:"omitempty,e164"`
}

// CreateCategoryInput carries the fields accepted when creating a category.
type CreateCategoryInput struct {
	Name      string `json:"name" validate:"required,min=2,max=80"`
	SortOrder int    `json:"sort_order" validate:"gte=0"`
}

// UpdateCatalogueInput carries the mutable catalogue fields.
type UpdateCatalogueInput struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=120"`
	Description *string `json:"description"`
	LogoURL     *string `json:"logo_url" validate:"omitempty,url"`
	WhatsApp    *string `json:"whatsapp" validate:"omitempty,e164"`
	IsPublished *bool   `json:"is_published"`
}
