package rule

import (
	"fmt"
)

// Block is one conditional text slot: an ordered list of rules identified by
// a stable ID. Rule order is significant.
type Block struct {
	// ID identifies the block in resolved output.
	ID string `json:"id" jsonschema:"title=Block ID" validate:"required" yaml:"id"`
	// Description documents the block.
	Description string `json:"description,omitempty" jsonschema:"title=Description" yaml:"description,omitempty"`
	// Rules are evaluated in order; the first match wins.
	Rules []*Rule `json:"rules" jsonschema:"title=Rules" validate:"required,min=1,dive,required" yaml:"rules"`
}

// NewBlock creates a new [Block].
func NewBlock(id string, rules ...*Rule) *Block {
	return &Block{ID: id, Rules: rules}
}

// HasFallback reports whether the last rule's condition is the literal true,
// which guarantees that the block always resolves.
func (b *Block) HasFallback() bool {
	if len(b.Rules) == 0 {
		return false
	}

	last := b.Rules[len(b.Rules)-1]

	return last.When == "true" || last.When == "True"
}

func (b *Block) String() string {
	return fmt.Sprintf("%s (%d rules)", b.ID, len(b.Rules))
}
