// Package solr is a small Apache Solr client implementing search.Indexer.
//
// It speaks Solr's JSON update and select APIs over plain HTTP:
//
//	client, err := solr.New("http://localhost:8983/solr", solr.WithCommitWithin(time.Second))
//	err = client.Index(ctx, "works", docs)
//	result, err := client.Query(ctx, "works", solr.Query{Q: "title:Quixote", Rows: 10})
package solr
