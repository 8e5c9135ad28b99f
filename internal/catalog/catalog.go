// Package catalog resolves display metadata (title, image) for product ids.
//
// A small built-in table covers the sample products; an optional YAML file
// can add or override entries at startup.
package catalog

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	"trustlens/review-api/internal/domain"
)

// imageBase renders the category name on a placeholder tile.
const imageBase = "https://via.placeholder.com/400x400/2196F3/FFFFFF?text="

// defaultCategory labels the image of any product without a catalog entry.
const defaultCategory = "Product"

// Entry is the metadata kept for one product id.
type Entry struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
}

// Catalog maps product ids to metadata. The zero value is not usable; use
// Default or LoadFile. A Catalog is read-only after construction.
type Catalog struct {
	entries map[string]Entry
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return &Catalog{entries: map[string]Entry{
		"B08N5WRWNW": {Title: "Echo Dot (4th Gen) - Smart Speaker with Alexa", Category: "Smart Speaker"},
		"B07FZ8S74R": {Title: "Fire TV Stick 4K - Streaming Media Player", Category: "Streaming Device"},
		"B09DZH4C71": {Title: "Cosmic Byte Odyssey Condensor Microphone", Category: "Microphone"},
		"B0FKTDXKXV": {Title: "Maxoshine Car Dashboard Polish - Non-Greasy Formula", Category: "Car Care"},
		"B0DZX4PYLV": {Title: "Phone Ring Holder and Kickstand - Universal Compatibility", Category: "Mobile Accessories"},
		"B0DM5RD6M6": {Title: "ConnectPlus Power Bank 20000mAh Portable Charger", Category: "Power Bank"},
		"B085NNH52P": {Title: "ConnectPlus Portable Bluetooth Speaker - Waterproof", Category: "Bluetooth Speaker"},
		"B08HEADSET": {Title: "Premium Wireless Headphones with Active Noise Cancellation", Category: "Headphones"},
	}}
}

// overlayFile is the on-disk shape of a catalog overlay.
type overlayFile struct {
	Products map[string]Entry `yaml:"products"`
}

// LoadFile returns the built-in catalog with the entries of the YAML file at
// path layered on top. Fields left empty in the file keep their built-in value.
func LoadFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var f overlayFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}

	c := Default()
	for id, e := range f.Products {
		cur := c.entries[id]
		if e.Title != "" {
			cur.Title = e.Title
		}
		if e.Category != "" {
			cur.Category = e.Category
		}
		c.entries[id] = cur
	}
	return c, nil
}

// Len returns the number of known products.
func (c *Catalog) Len() int { return len(c.entries) }

// Title returns the catalog title for id, or "<Platform> Product - <id>".
func (c *Catalog) Title(id string, platform domain.Platform) string {
	if e, ok := c.entries[id]; ok && e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("%s Product - %s", platform.Label(), id)
}

// ImageURL returns the placeholder image for id's category.
func (c *Catalog) ImageURL(id string) string {
	category := defaultCategory
	if e, ok := c.entries[id]; ok && e.Category != "" {
		category = e.Category
	}
	return imageBase + url.QueryEscape(category)
}
