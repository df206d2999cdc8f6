package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct{ Value string }

func (pingCommand) Key() string { return "test.ping" }

type otherCommand struct{}

func (otherCommand) Key() string { return "test.other" }

func TestInMemoryBus_Dispatch(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler[pingCommand, string](bus, "test.ping", HandlerFunc[pingCommand, string](
		func(_ context.Context, cmd pingCommand) (string, error) { return "pong:" + cmd.Value, nil },
	))

	out, err := Dispatch[pingCommand, string](context.Background(), bus, pingCommand{Value: "x"})
	require.NoError(t, err)
	assert.Equal(t, "pong:x", out)

	_, err = Dispatch[pingCommand, int](context.Background(), bus, pingCommand{})
	assert.ErrorIs(t, err, ErrResultType)
	var typeErr *ResultTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "test.ping", typeErr.Key)
	assert.EqualError(t, err, "commands: test.ping returned string, want int")

	_, err = bus.Dispatch(context.Background(), otherCommand{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)

	_, err = Dispatch[pingCommand, string](context.Background(), nil, pingCommand{})
	assert.ErrorIs(t, err, ErrNilBus)

	assert.Equal(t, []string{"test.ping"}, bus.Keys())
}

func TestInMemoryBus_DuplicateRegistration(t *testing.T) {
	bus := NewInMemoryBus()
	h := HandlerFunc[pingCommand, string](func(context.Context, pingCommand) (string, error) { return "", nil })
	RegisterHandler[pingCommand, string](bus, "test.ping", h)
	assert.Panics(t, func() { RegisterHandler[pingCommand, string](bus, "test.ping", h) })
}
