package domain

import "fmt"

const (
	webBase   = "https://www.pixiv.net"
	appScheme = "pixeval"
)

// WebURL returns the artwork page on the platform
func (i *Illustration) WebURL() string {
	return fmt.Sprintf("%s/artworks/%s", webBase, i.ID)
}

// AppURL returns the desktop client deep link
func (i *Illustration) AppURL() string {
	return fmt.Sprintf("%s://illust/%s", appScheme, i.ID)
}

// WebURL returns the novel page on the platform
func (n *Novel) WebURL() string {
	return fmt.Sprintf("%s/novel/show.php?id=%s", webBase, n.ID)
}

// AppURL returns the desktop client deep link
func (n *Novel) AppURL() string {
	return fmt.Sprintf("%s://novel/%s", appScheme, n.ID)
}
