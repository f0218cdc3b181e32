package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping maps image documents: the title gets English stemming,
// tag names are full-text searchable and tag slugs match exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", title)

	tagNames := bleve.NewTextFieldMapping()
	tagNames.Analyzer = en.AnalyzerName
	tagNames.Store = true
	docMapping.AddFieldMappingsAt("tags", tagNames)

	tagSlugs := bleve.NewTextFieldMapping()
	tagSlugs.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("tag_slugs", tagSlugs)

	uploadedAt := bleve.NewNumericFieldMapping()
	uploadedAt.Store = true
	docMapping.AddFieldMappingsAt("uploaded_at", uploadedAt)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
