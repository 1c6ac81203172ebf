// Package platform assembles a thematic research collection from its parts.
//
// For every entry kind it builds a document store (PostgreSQL through pgx,
// database/sql or sqlx, or in-memory), a repository, an entry resolver registered
// in one shared entry.Registry, and a search mediator that keeps the kind's Solr
// core in sync with committed changes.
//
// Usage:
//
//	conf, _ := config.Load()
//	p, err := platform.Open(ctx, conf, platform.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer p.Close()
//
//	editor, _ := p.Works.Create()
//	_ = editor.AddTitle(work.Title{Type: work.TitleCanonical, Title: "Middlemarch"})
//	doc, err := editor.Execute(ctx)
package platform
