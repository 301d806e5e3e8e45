package tables

import "github.com/apache/arrow/go/v18/arrow"

const (
	comment = "comment"
)

// MetadataBuilder is a convenience type to aid readability of code that
// specifies metadata for Arrow types.
type MetadataBuilder struct {
	keys   []string
	values []string
}

func NewMetadataBuilder() *MetadataBuilder {
	return &MetadataBuilder{}
}

// Comment is shorthand for a builder holding only a comment.
func Comment(text string) *MetadataBuilder {
	return NewMetadataBuilder().Add(comment, text)
}

func (b *MetadataBuilder) Add(key, value string) *MetadataBuilder {
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	return b
}

// AddIfSet adds the pair only if value is non-empty.
func (b *MetadataBuilder) AddIfSet(key, value string) *MetadataBuilder {
	if value == "" {
		return b
	}
	return b.Add(key, value)
}

// Build constructs and returns the arrow.Metadata.
func (b *MetadataBuilder) Build() arrow.Metadata {
	return arrow.NewMetadata(b.keys, b.values)
}

// BuildReference constructs and returns the arrow.Metadata result as a
// reference.
func (b *MetadataBuilder) BuildReference() *arrow.Metadata {
	result := b.Build()
	return &result
}

// WithMetadata returns a copy of schema whose schema-level metadata is its
// original metadata followed by the pairs in b.
func WithMetadata(schema *arrow.Schema, b *MetadataBuilder) *arrow.Schema {
	merged := NewMetadataBuilder()
	md := schema.Metadata()
	for i, k := range md.Keys() {
		merged.Add(k, md.Values()[i])
	}
	merged.keys = append(merged.keys, b.keys...)
	merged.values = append(merged.values, b.values...)
	return arrow.NewSchema(schema.Fields(), merged.BuildReference())
}

// Lookup returns the value stored under key in the schema-level metadata.
func Lookup(schema *arrow.Schema, key string) (string, bool) {
	md := schema.Metadata()
	i := md.FindKey(key)
	if i < 0 {
		return "", false
	}
	return md.Values()[i], true
}
