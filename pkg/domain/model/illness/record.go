package illness

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
)

// Record is one childhood illness entry. A nil field means the stored
// document did not carry it.
type Record struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	ImageURL    *string `json:"imageUrl"`
}

func (x Record) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("title", x.Title),
		slog.Any("date", x.Date),
	)
}

// Fields holds the stored field name of each Record field.
type Fields struct {
	Title       string
	Description string
	Date        string
	ImageURL    string
}

const (
	DefaultCollection = "childhood_illnesses"
	LegacyCollection  = "enfermedades_infantiles"
)

var (
	DefaultFields = Fields{
		Title:       "title",
		Description: "description",
		Date:        "date",
		ImageURL:    "imageUrl",
	}

	// LegacyFields is the layout written by the mobile app.
	LegacyFields = Fields{
		Title:       "titulo",
		Description: "descripcion",
		Date:        "fecha",
		ImageURL:    "UrlImage",
	}
)

func (x Fields) Validate() error {
	names := map[string]string{
		"title":       x.Title,
		"description": x.Description,
		"date":        x.Date,
		"image_url":   x.ImageURL,
	}
	seen := make(map[string]string, len(names))
	for key, name := range names {
		if name == "" {
			return goerr.New("field name is empty", goerr.V("field", key), goerr.T(errs.TagValidation))
		}
		if prev, ok := seen[name]; ok {
			return goerr.New("field name is duplicated",
				goerr.V("name", name),
				goerr.V("fields", []string{prev, key}),
				goerr.T(errs.TagValidation))
		}
		seen[name] = key
	}
	return nil
}

// Map converts stored document data into a Record. Missing, nil and
// non-string values become absent fields.
func (x Fields) Map(data map[string]any) Record {
	return Record{
		Title:       stringField(data, x.Title),
		Description: stringField(data, x.Description),
		Date:        stringField(data, x.Date),
		ImageURL:    stringField(data, x.ImageURL),
	}
}

// Data is the inverse of Map. Absent fields are not written.
func (x Fields) Data(r Record) map[string]any {
	data := make(map[string]any, 4)
	put := func(name string, v *string) {
		if v != nil {
			data[name] = *v
		}
	}
	put(x.Title, r.Title)
	put(x.Description, r.Description)
	put(x.Date, r.Date)
	put(x.ImageURL, r.ImageURL)
	return data
}

func stringField(data map[string]any, name string) *string {
	v, ok := data[name].(string)
	if !ok {
		return nil
	}
	return &v
}
