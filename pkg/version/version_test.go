package version_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/piecetree/pkg/version"
)

func TestString_SourceBuildDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "dev (commit none, built unknown)", version.String())
}
