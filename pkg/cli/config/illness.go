package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/sanuvia/sanuvia/pkg/domain/interfaces"
	"github.com/sanuvia/sanuvia/pkg/domain/model/errs"
	model "github.com/sanuvia/sanuvia/pkg/domain/model/illness"
	"github.com/sanuvia/sanuvia/pkg/service/illness"
	"github.com/urfave/cli/v3"
)

const (
	layoutDefault = "default"
	layoutLegacy  = "legacy"
)

// Illness selects the collection and field layout of the illness data.
type Illness struct {
	layout     string
	collection string
}

func (x *Illness) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "layout",
			Usage:       "Document layout [default|legacy] (legacy: enfermedades_infantiles with titulo/descripcion/fecha/UrlImage)",
			Category:    "Illness",
			Sources:     cli.EnvVars("SANUVIA_LAYOUT"),
			Value:       layoutDefault,
			Destination: &x.layout,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Override the collection name of the layout",
			Category:    "Illness",
			Sources:     cli.EnvVars("SANUVIA_COLLECTION"),
			Destination: &x.collection,
		},
	}
}

func (x Illness) LogValue() slog.Value {
	collection, _, _ := x.resolve()
	return slog.GroupValue(
		slog.String("layout", x.layout),
		slog.String("collection", collection),
	)
}

func (x *Illness) resolve() (string, model.Fields, error) {
	var collection string
	var fields model.Fields

	switch x.layout {
	case layoutDefault, "":
		collection, fields = model.DefaultCollection, model.DefaultFields
	case layoutLegacy:
		collection, fields = model.LegacyCollection, model.LegacyFields
	default:
		return "", model.Fields{}, goerr.New("invalid layout",
			goerr.V("layout", x.layout),
			goerr.T(errs.TagValidation))
	}

	if x.collection != "" {
		collection = x.collection
	}
	if err := fields.Validate(); err != nil {
		return "", model.Fields{}, err
	}
	return collection, fields, nil
}

// Fields returns the field layout selected by the flags.
func (x *Illness) Fields() (model.Fields, error) {
	_, fields, err := x.resolve()
	return fields, err
}

// Collection returns the collection name selected by the flags.
func (x *Illness) Collection() (string, error) {
	collection, _, err := x.resolve()
	return collection, err
}

func (x *Illness) Configure(store interfaces.DocumentStore) (*illness.Service, error) {
	collection, fields, err := x.resolve()
	if err != nil {
		return nil, err
	}
	return illness.New(store,
		illness.WithCollection(collection),
		illness.WithFields(fields),
	), nil
}
