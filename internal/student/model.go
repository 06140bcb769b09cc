package student

import "github.com/uptrace/bun"

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID        int    `bun:"id,pk,autoincrement" json:"id"`
	FirstName string `bun:"first_name,notnull" json:"firstName"`
	LastName  string `bun:"last_name,notnull" json:"lastName"`
	Email     string `bun:"email,notnull" json:"email"`
	MajorCode string `bun:"major_code" json:"major"`
	Address   string `bun:"address,notnull" json:"address"`
	// ProfileImage holds the blob store reference; empty means no image.
	ProfileImage string `bun:"profile_image,nullzero" json:"-"`

	// Populated by the LEFT JOIN against majors on reads.
	MajorDescription string `bun:"major_description,scanonly" json:"-"`
}

type Major struct {
	bun.BaseModel `bun:"table:majors,alias:m"`

	Code        string `bun:"code,pk" json:"code"`
	Description string `bun:"description,notnull" json:"description"`
}

// Input carries the form fields of an add or modify request. Field order
// matters for validation: the first failing field is the one reported.
type Input struct {
	FirstName string `form:"fname" validate:"required"`
	LastName  string `form:"lname" validate:"required"`
	Email     string `form:"email" validate:"required,contains=@,contains=."`
	MajorCode string `form:"major" validate:"required"`
	Address   string `form:"address" validate:"required"`
}

// Upload is an image file received alongside the form.
type Upload struct {
	Filename string
	Content  []byte
}

// View is the API representation of a student. Profile carries the image as
// base64 when the referenced blob is readable, nil otherwise.
type View struct {
	ID               int     `json:"id"`
	FirstName        string  `json:"firstName"`
	LastName         string  `json:"lastName"`
	Email            string  `json:"email"`
	Major            string  `json:"major"`
	MajorDescription string  `json:"majorDescription,omitempty"`
	Address          string  `json:"address"`
	Profile          *string `json:"profile"`
	HasImage         bool    `json:"hasImage"`
}
