package config

import (
	"strconv"
	"strings"
	"time"
)

// ThemeConfig is the navigation and presentation data consumed by the page
// generator. bobdocs only validates and forwards it.
type ThemeConfig struct {
	Navbar Navbar      `yaml:"navbar"`
	Footer Footer      `yaml:"footer"`
	Prism  PrismConfig `yaml:"prism"`
}

// Navbar is the top navigation bar.
type Navbar struct {
	Title string       `yaml:"title"`
	Items []NavbarItem `yaml:"items,omitempty"`
}

// NavbarItem is a link (To for internal routes, Href for external URLs) or a
// dropdown when Type is "dropdown".
type NavbarItem struct {
	Type            string       `yaml:"type,omitempty"`
	Label           string       `yaml:"label"`
	To              string       `yaml:"to,omitempty"`
	Href            string       `yaml:"href,omitempty"`
	ActiveBaseRegex string       `yaml:"active_base_regex,omitempty"`
	Position        string       `yaml:"position,omitempty"` // left|right
	Items           []NavbarItem `yaml:"items,omitempty"`
}

// IsDropdown reports whether the item groups child items.
func (n NavbarItem) IsDropdown() bool {
	return n.Type == "dropdown"
}

// Footer is the site footer.
type Footer struct {
	Style     string `yaml:"style"` // dark|light
	Copyright string `yaml:"copyright,omitempty"`
}

// yearPlaceholder is replaced with the build year in the footer copyright.
const yearPlaceholder = "{year}"

// RenderCopyright substitutes the build year into the copyright line.
func (f Footer) RenderCopyright(now time.Time) string {
	return strings.ReplaceAll(f.Copyright, yearPlaceholder, strconv.Itoa(now.Year()))
}

// PrismConfig names the code highlighting themes.
type PrismConfig struct {
	Theme     string `yaml:"theme,omitempty"`
	DarkTheme string `yaml:"dark_theme,omitempty"`
}
