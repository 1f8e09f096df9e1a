package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, NewLogger("debug").GetLevel())
	assert.Equal(t, logrus.WarnLevel, NewLogger(" warning ").GetLevel())
	assert.Equal(t, logrus.InfoLevel, NewLogger("chatty").GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, NewLogger("").Formatter)
}
