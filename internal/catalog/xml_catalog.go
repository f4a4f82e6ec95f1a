// Package catalog loads the property listings published by the catalog
// service as an XML document.
package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BnBPlug/service-reservation/internal/domain/property"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"go.uber.org/zap"
)

type xmlDocument struct {
	XMLName    xml.Name      `xml:"properties"`
	Properties []xmlProperty `xml:"property"`
}

type xmlProperty struct {
	ID       string `xml:"id,attr"`
	Title    string `xml:"title"`
	Location string `xml:"location"`
	City     string `xml:"city"`
	Price    int64  `xml:"price"`
	Guests   int    `xml:"guests"`
	Status   string `xml:"status"`
}

// XMLCatalog is an in-memory Catalog loaded once from XML.
type XMLCatalog struct {
	byID map[string]property.Property
}

// LoadXMLFile reads the catalog from path.
func LoadXMLFile(path string, log *zap.Logger) (*XMLCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	c, err := LoadXML(f)
	if err != nil {
		return nil, err
	}
	log.Info("property catalog loaded",
		zap.String("path", path),
		zap.Int("properties", len(c.byID)),
	)
	return c, nil
}

// LoadXML decodes a catalog document. Listings without an id or with a
// non-positive price are rejected.
func LoadXML(r io.Reader) (*XMLCatalog, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	byID := make(map[string]property.Property, len(doc.Properties))
	for i, p := range doc.Properties {
		id := strings.TrimSpace(p.ID)
		if id == "" {
			return nil, fmt.Errorf("catalog entry %d has no id", i)
		}
		if p.Price <= 0 {
			return nil, fmt.Errorf("catalog entry %s has non-positive price %d", id, p.Price)
		}
		if _, dup := byID[id]; dup {
			return nil, fmt.Errorf("catalog entry %s is listed twice", id)
		}
		byID[id] = property.Property{
			ID:          id,
			Title:       strings.TrimSpace(p.Title),
			Location:    strings.TrimSpace(p.Location),
			City:        strings.TrimSpace(p.City),
			NightlyRate: p.Price,
			MaxGuests:   p.Guests,
			Status:      strings.ToLower(strings.TrimSpace(p.Status)),
		}
	}
	return &XMLCatalog{byID: byID}, nil
}

// FindByID returns the property with the given id.
func (c *XMLCatalog) FindByID(_ context.Context, id string) (*property.Property, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Property", id)
	}
	return &p, nil
}

// Len returns the number of listings.
func (c *XMLCatalog) Len() int { return len(c.byID) }
