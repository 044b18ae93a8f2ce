package digest

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Image is one entry of the execution-tags file.
type Image struct {
	Name       string `toml:"name"`
	Repository string `toml:"docker_repository"`
	Tag        string `toml:"docker_tag"`
}

// Reference returns repository:tag.
func (i Image) Reference() string {
	return i.Repository + ":" + i.Tag
}

type tagsFile struct {
	InputDownloading []Image `toml:"inputdownloading"`
	Preprocessing    []Image `toml:"preprocessing"`
	Processing       []Image `toml:"processing"`
}

// TagCatalog maps (phase, tag name) to a docker image.
type TagCatalog struct {
	images map[Phase][]Image
}

// LoadTagCatalog reads an execution-tags TOML file.
func LoadTagCatalog(path string) (*TagCatalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open execution tags: %w", err)
	}
	defer file.Close()
	return ParseTagCatalog(file)
}

// ParseTagCatalog decodes execution tags from r.
func ParseTagCatalog(r io.Reader) (*TagCatalog, error) {
	var raw tagsFile
	if err := toml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse execution tags: %w", err)
	}
	catalog := &TagCatalog{images: map[Phase][]Image{
		PhaseInputDownloading: raw.InputDownloading,
		PhasePreprocessing:    raw.Preprocessing,
		PhaseProcessing:       raw.Processing,
	}}
	for phase, images := range catalog.images {
		seen := make(map[string]struct{}, len(images))
		for i, img := range images {
			img.Name = strings.TrimSpace(img.Name)
			img.Repository = strings.TrimSpace(img.Repository)
			img.Tag = strings.TrimSpace(img.Tag)
			if img.Name == "" || img.Repository == "" || img.Tag == "" {
				return nil, fmt.Errorf("execution tags: %s[%d] needs name, docker_repository and docker_tag", phase, i)
			}
			if _, dup := seen[img.Name]; dup {
				return nil, fmt.Errorf("execution tags: %s tag %q declared twice", phase, img.Name)
			}
			seen[img.Name] = struct{}{}
			images[i] = img
		}
	}
	return catalog, nil
}

// Lookup returns the image registered for tag in phase.
func (c *TagCatalog) Lookup(phase Phase, tag string) (Image, error) {
	for _, img := range c.images[phase] {
		if img.Name == tag {
			return img, nil
		}
	}
	return Image{}, fmt.Errorf("%w: %s/%s", ErrUnknownTag, phase, tag)
}

// Images lists the images registered for phase in file order.
func (c *TagCatalog) Images(phase Phase) []Image {
	return append([]Image(nil), c.images[phase]...)
}
