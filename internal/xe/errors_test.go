package xe

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dushixiang/magicbutton/internal/dataset"
	"github.com/dushixiang/magicbutton/internal/portfolio"
	"github.com/dushixiang/magicbutton/pkg/frame"
	"github.com/go-orz/orz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrom(t *testing.T) {
	assert.NoError(t, From(nil))
	assert.Same(t, ErrSessionNotFound, From(ErrSessionNotFound))
	assert.Same(t, ErrStrategyNotFound, From(fmt.Errorf("load: %w", dataset.ErrStrategyNotFound)))
	assert.Same(t, ErrMisaligned, From(fmt.Errorf("pv: %w", frame.ErrMisaligned)))
	assert.Same(t, ErrInsufficientData, From(fmt.Errorf("x: %w", portfolio.ErrInsufficientData)))

	missing := From(&dataset.MissingDatasetError{Dir: "run-a", Kinds: []dataset.Kind{dataset.Trades}})
	var oe *orz.Error
	require.True(t, errors.As(missing, &oe))
	assert.Equal(t, ErrDatasetMissing.Code, oe.Code)

	plain := errors.New("disk on fire")
	assert.Same(t, plain, From(plain))
}
