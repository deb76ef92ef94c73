package project

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/joescharf/mdb/internal/models"
)

// DotConfig is the persisted per-project preference file (".mdb" by default).
type DotConfig struct {
	ProjectName   string
	Domain        string
	Hash          string
	PublishMethod models.PublishMethod
	Type          models.ProjectKind // meta.type
	Starter       string             // meta.starter
	Platform      string             // backend.platform
}

// entries lists the JSON path and value of every field in file order.
func (c *DotConfig) entries() [][2]string {
	return [][2]string{
		{"projectName", c.ProjectName},
		{"domain", c.Domain},
		{"hash", c.Hash},
		{"publishMethod", string(c.PublishMethod)},
		{"meta.type", string(c.Type)},
		{"meta.starter", c.Starter},
		{"backend.platform", c.Platform},
	}
}

// LoadDotConfig reads the dot-config at path. A missing file yields an empty
// config and no error.
func LoadDotConfig(path string) (*DotConfig, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &DotConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dot-config: %w", err)
	}
	if len(data) == 0 {
		return &DotConfig{}, nil
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse dot-config %s: invalid JSON", path)
	}

	r := gjson.ParseBytes(data)
	c := &DotConfig{
		ProjectName:   r.Get("projectName").String(),
		Domain:        r.Get("domain").String(),
		Hash:          r.Get("hash").String(),
		PublishMethod: models.PublishMethod(r.Get("publishMethod").String()),
		Type:          models.ProjectKind(r.Get("meta.type").String()),
		Starter:       r.Get("meta.starter").String(),
		Platform:      r.Get("backend.platform").String(),
	}
	return c, nil
}

// SaveDotConfig writes c to path. Keys the client does not know about are kept;
// empty fields are removed.
func SaveDotConfig(path string, c *DotConfig) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && len(data) == 0) {
		data, err = []byte("{}"), nil
	}
	if err != nil {
		return fmt.Errorf("read dot-config: %w", err)
	}

	for _, e := range c.entries() {
		path, value := e[0], e[1]
		if value == "" {
			data, err = sjson.DeleteBytes(data, path)
		} else {
			data, err = sjson.SetBytes(data, path, value)
		}
		if err != nil {
			return fmt.Errorf("set dot-config %s: %w", path, err)
		}
	}

	return writeFilePreservingMode(path, pretty.Pretty(data))
}
