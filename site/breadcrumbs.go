package site

// Breadcrumb models a single breadcrumb entry for navigation.
type Breadcrumb struct {
	Title   string
	Path    string
	Current bool
}

func buildBreadcrumbs(siteName string, season *Season, article *Article) []Breadcrumb {
	crumbs := make([]Breadcrumb, 0, 3)
	crumbs = append(crumbs, Breadcrumb{Title: siteName, Path: "/"})

	if season == nil {
		crumbs[0].Current = true
		return crumbs
	}

	seasonCrumb := Breadcrumb{Title: season.Title, Path: season.URL}
	if article == nil {
		seasonCrumb.Path = ""
		seasonCrumb.Current = true
		return append(crumbs, seasonCrumb)
	}
	crumbs = append(crumbs, seasonCrumb)

	return append(crumbs, Breadcrumb{Title: article.Title, Current: true})
}
