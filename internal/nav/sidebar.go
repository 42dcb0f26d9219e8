package nav

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tourvisto/internal/session"
)

// DefaultAvatar is shown when the signed-in user has no image.
const DefaultAvatar = "/assets/images/david.webp"

//go:embed sidebar.yaml
var defaultSidebar []byte

type Item struct {
	ID    int    `yaml:"id"`
	Href  string `yaml:"href"`
	Icon  string `yaml:"icon"`
	Label string `yaml:"label"`
}

type Sidebar struct {
	Logo  string `yaml:"logo"`
	Items []Item `yaml:"items"`
}

// LoadSidebar reads the sidebar from path, or the built-in one when path is empty.
func LoadSidebar(path string) (*Sidebar, error) {
	if path == "" {
		return ParseSidebar(defaultSidebar)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sidebar: %w", err)
	}
	return ParseSidebar(b)
}

func ParseSidebar(b []byte) (*Sidebar, error) {
	var s Sidebar
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse sidebar: %w", err)
	}
	if len(s.Items) == 0 {
		return nil, errors.New("sidebar: no items")
	}
	for _, it := range s.Items {
		if it.Label == "" || !strings.HasPrefix(it.Href, "/") {
			return nil, fmt.Errorf("sidebar: invalid item %d", it.ID)
		}
	}
	return &s, nil
}

type ItemView struct {
	Item
	Active bool
}

type Footer struct {
	ImageURL string
	Name     string
	Email    string
}

// View is the sidebar as rendered for one request.
type View struct {
	Logo   string
	Items  []ItemView
	Footer Footer
}

// Render marks the item owning path as active and fills the user footer.
func (s *Sidebar) Render(path string, user *session.Identity) View {
	v := View{Logo: s.Logo, Items: make([]ItemView, 0, len(s.Items))}
	for _, it := range s.Items {
		v.Items = append(v.Items, ItemView{Item: it, Active: isActive(it.Href, path)})
	}
	v.Footer = Footer{ImageURL: DefaultAvatar}
	if user != nil {
		v.Footer.Name = user.Name
		v.Footer.Email = user.Email
		if user.ImageURL != "" {
			v.Footer.ImageURL = user.ImageURL
		}
	}
	return v
}

// isActive matches href exactly or as a leading path segment.
func isActive(href, path string) bool {
	if path == href {
		return true
	}
	if href == "/" {
		return false
	}
	return strings.HasPrefix(path, strings.TrimSuffix(href, "/")+"/")
}
