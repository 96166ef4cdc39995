/*
	config package defines the set of financial institutions the crawler
	visits. Institution lists may be supplied through an external YAML file
	or fall back to a built-in default.
*/

package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Institution describes a single financial institution to crawl.
type Institution struct {
	// Short unique identifier for the institution. ie "bbva-mx".
	Slug string `yaml:"slug"`

	// Human readable institution name.
	Name string `yaml:"name"`

	// URL of the institution's landing page.
	BaseURL string `yaml:"base_url"`

	// Regular expressions matched against the raw hrefs found on the
	// landing page. An href matching any of the patterns is treated as a
	// product page link.
	ProductPatterns []string `yaml:"product_patterns"`

	// Optional ISO country code. ie "MX".
	Country string `yaml:"country"`

	// Optional ISO currency code. ie "MXN".
	Currency string `yaml:"currency"`

	patterns []*regexp.Regexp
}

// Patterns returns the institution's compiled product patterns.
func (i *Institution) Patterns() []*regexp.Regexp {
	return i.patterns
}

func (i *Institution) compile() error {
	var err error

	if i.Slug == "" {
		err = multierror.Append(err, fmt.Errorf("institution slug not provided"))
	}

	if i.Name == "" {
		err = multierror.Append(err, fmt.Errorf("institution %q: name not provided", i.Slug))
	}

	if i.BaseURL == "" {
		err = multierror.Append(err, fmt.Errorf("institution %q: base url not provided", i.Slug))
	}

	if len(i.ProductPatterns) == 0 {
		err = multierror.Append(err, fmt.Errorf("institution %q: no product patterns provided", i.Slug))
	}

	i.patterns = i.patterns[:0]
	for _, pattern := range i.ProductPatterns {
		compiled, compileErr := regexp.Compile(pattern)
		if compileErr != nil {
			err = multierror.Append(err, fmt.Errorf(
				"institution %q: invalid product pattern %q: %w",
				i.Slug, pattern, compileErr,
			))

			continue
		}

		i.patterns = append(i.patterns, compiled)
	}

	return err
}

// Load reads an institution list from the YAML file at the provided path.
// The crawl order of the institutions follows their order in the file.
func Load(path string) ([]*Institution, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read institutions file: %w", err)
	}

	var institutions []*Institution
	if err := yaml.Unmarshal(raw, &institutions); err != nil {
		return nil, fmt.Errorf("config: parse institutions file: %w", err)
	}

	if len(institutions) == 0 {
		return nil, fmt.Errorf("config: institutions file %q defines no institutions", path)
	}

	var validationErr error
	for _, inst := range institutions {
		if err := inst.compile(); err != nil {
			validationErr = multierror.Append(validationErr, err)
		}
	}

	if validationErr != nil {
		return nil, fmt.Errorf("config: institution validation failed: %w", validationErr)
	}

	return institutions, nil
}

// Default returns the built-in institution list used when no external
// configuration file is provided.
func Default() []*Institution {
	institutions := []*Institution{
		{
			Slug:            "bbva-mx",
			Name:            "BBVA México",
			BaseURL:         "https://www.bbva.mx",
			ProductPatterns: []string{`/personas/[^#?]*`},
			Country:         "MX",
			Currency:        "MXN",
		},
	}

	for _, inst := range institutions {
		if err := inst.compile(); err != nil {
			panic(fmt.Sprintf("[BUG]::invalid default institution config: %v", err))
		}
	}

	return institutions
}
