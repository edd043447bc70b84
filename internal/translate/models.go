package translate

import "time"

// Visibility controls who may see a stored translation and its PDF.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityPublic  Visibility = "PUBLIC"
)

// Translation is a stored translation request together with its export state.
type Translation struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	UserID         string     `bson:"userId" json:"userId"`
	RawText        string     `bson:"rawText" json:"rawText"`
	TranslatedText string     `bson:"translatedText" json:"translatedText"`
	Truncated      bool       `bson:"truncated,omitempty" json:"truncated,omitempty"`
	Visibility     Visibility `bson:"visibility" json:"visibility"`
	PDFKey         string     `bson:"pdfKey,omitempty" json:"-"`
	PDFLink        string     `bson:"pdfLink,omitempty" json:"pdfLink,omitempty"`
	TotalVisits    int        `bson:"totalVisits" json:"totalVisits"`
	CreatedAt      time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time  `bson:"updatedAt" json:"updatedAt"`
}
