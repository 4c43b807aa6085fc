package illness_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/sanuvia/sanuvia/pkg/domain/model/illness"
)

func TestFieldsMap(t *testing.T) {
	t.Run("maps every field by name", func(t *testing.T) {
		rec := illness.DefaultFields.Map(map[string]any{
			"title":       "Sarampión",
			"description": "Enfermedad viral",
			"date":        "2024-06-01",
			"imageUrl":    "https://example.com/a.png",
		})

		gt.V(t, rec.Title).NotNil()
		gt.Equal(t, *rec.Title, "Sarampión")
		gt.Equal(t, *rec.Description, "Enfermedad viral")
		gt.Equal(t, *rec.Date, "2024-06-01")
		gt.Equal(t, *rec.ImageURL, "https://example.com/a.png")
	})

	t.Run("missing fields are absent", func(t *testing.T) {
		rec := illness.DefaultFields.Map(map[string]any{
			"title": "Varicela",
		})

		gt.Equal(t, *rec.Title, "Varicela")
		gt.Nil(t, rec.Description)
		gt.Nil(t, rec.Date)
		gt.Nil(t, rec.ImageURL)
	})

	t.Run("empty string is kept", func(t *testing.T) {
		rec := illness.DefaultFields.Map(map[string]any{"imageUrl": ""})
		gt.V(t, rec.ImageURL).NotNil()
		gt.Equal(t, *rec.ImageURL, "")
	})

	t.Run("nil and non-string values are absent", func(t *testing.T) {
		rec := illness.DefaultFields.Map(map[string]any{
			"title": nil,
			"date":  int64(20240601),
		})
		gt.Nil(t, rec.Title)
		gt.Nil(t, rec.Date)
	})

	t.Run("legacy layout", func(t *testing.T) {
		rec := illness.LegacyFields.Map(map[string]any{
			"titulo":      "Rubéola",
			"descripcion": "desc",
			"fecha":       "2023-01-01",
			"UrlImage":    "gs://bucket/rubeola.png",
			"title":       "ignored",
		})
		gt.Equal(t, *rec.Title, "Rubéola")
		gt.Equal(t, *rec.Date, "2023-01-01")
		gt.Equal(t, *rec.ImageURL, "gs://bucket/rubeola.png")
	})

	t.Run("nil data", func(t *testing.T) {
		rec := illness.DefaultFields.Map(nil)
		gt.Equal(t, rec, illness.Record{})
	})
}

func TestFieldsData(t *testing.T) {
	title := "Paperas"
	date := "2022-12-31"
	data := illness.LegacyFields.Data(illness.Record{Title: &title, Date: &date})

	gt.Equal(t, data, map[string]any{
		"titulo": "Paperas",
		"fecha":  "2022-12-31",
	})

	rec := illness.LegacyFields.Map(data)
	gt.Equal(t, *rec.Title, title)
	gt.Nil(t, rec.ImageURL)
}

func TestFieldsValidate(t *testing.T) {
	gt.NoError(t, illness.DefaultFields.Validate())
	gt.NoError(t, illness.LegacyFields.Validate())

	t.Run("empty name", func(t *testing.T) {
		f := illness.DefaultFields
		f.Date = ""
		gt.Error(t, f.Validate())
	})

	t.Run("duplicated name", func(t *testing.T) {
		f := illness.DefaultFields
		f.ImageURL = "title"
		gt.Error(t, f.Validate())
	})
}
