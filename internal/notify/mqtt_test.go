package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNilPublisherIsNoOp(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.ScheduleUpdated(3, "added weather1"))
	assert.NoError(t, p.ScreenSelected("date"))
	p.Close()
}

func TestTopicNamespacing(t *testing.T) {
	assert.Equal(t, "panels/lobby/schedule/updated", (&Publisher{prefix: "panels/lobby"}).topic("schedule/updated"))
	assert.Equal(t, "screen/current", (&Publisher{}).topic("screen/current"))
}
