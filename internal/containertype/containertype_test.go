package containertype

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	cases := map[ContainerType]string{
		Any:                "Any",
		Transient:          "Transient",
		Reserved:           "Reserved",
		Compute:            "Compute",
		Storage:            "Storage",
		ContainerType(999): "Unknown",
	}

	for ct, want := range cases {
		assert.Equal(t, want, ct.String())
	}
}
