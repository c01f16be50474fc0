package export

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/fury3-assets/pkg/encoding"
	"github.com/Faultbox/fury3-assets/pkg/formats"
)

type entityDocument struct {
	Types      []entityTypeDoc `yaml:"types"`
	Placements []placementDoc  `yaml:"placements"`
}

type entityTypeDoc struct {
	Index          int       `yaml:"index"`
	ClassID        int       `yaml:"class_id"`
	Model          string    `yaml:"model"`
	DestroyedModel string    `yaml:"destroyed_model"`
	Drops          []dropDoc `yaml:"drops,omitempty"`
	Description    string    `yaml:"description"`
}

type dropDoc struct {
	Item        int     `yaml:"item"`
	Probability float32 `yaml:"probability"`
}

type placementDoc struct {
	Type     int        `yaml:"type"`
	Model    string     `yaml:"model,omitempty"`
	Flags    uint16     `yaml:"flags"`
	Position [3]float32 `yaml:"position,flow"`
	Raw      [3]int32   `yaml:"raw,flow"`
}

// WriteEntitiesYAML writes the catalog as YAML. Text fields are converted
// from the game's Windows-1252 encoding.
func WriteEntitiesYAML(w io.Writer, c *formats.EntityCatalog) error {
	doc := entityDocument{
		Types:      make([]entityTypeDoc, 0, len(c.Types)),
		Placements: make([]placementDoc, 0, len(c.Placements)),
	}

	for i, t := range c.Types {
		td := entityTypeDoc{
			Index:          i,
			ClassID:        t.ClassID,
			Model:          text(t.Model),
			DestroyedModel: text(t.DestroyedModel),
			Description:    text(t.Description),
		}
		for _, d := range t.Drops {
			if d.Probability == 0 {
				continue
			}
			td.Drops = append(td.Drops, dropDoc{Item: d.Item, Probability: d.Probability})
		}
		doc.Types = append(doc.Types, td)
	}

	for _, p := range c.Placements {
		pd := placementDoc{
			Type:     p.Type,
			Flags:    p.Flags,
			Position: p.Position,
			Raw:      p.Raw,
		}
		if t := c.TypeOf(p); t != nil {
			pd.Model = text(t.Model)
		}
		doc.Placements = append(doc.Placements, pd)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func text(s string) string {
	return encoding.DecodeName([]byte(s))
}
