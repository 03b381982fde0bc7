package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
	calls [][]ChatTurn
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, history []ChatTurn) (string, error) {
	f.calls = append(f.calls, history)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAssistantExtractsAction(t *testing.T) {
	gen := &fakeGenerator{reply: "¡Claro! Aquí está nuestro menú 🍰 [ACCION:ver_menu]"}
	svc := NewAssistantService(gen, testCatalog())

	reply := svc.Ask(context.Background(), 10, "¿qué tortas tienen?")
	assert.Equal(t, ActionMenu, reply.Action)
	assert.Equal(t, "¡Claro! Aquí está nuestro menú 🍰", reply.Text)
}

func TestAssistantIgnoresUnknownAction(t *testing.T) {
	gen := &fakeGenerator{reply: "Hecho [ACCION:borrar_todo]"}
	svc := NewAssistantService(gen, testCatalog())

	reply := svc.Ask(context.Background(), 10, "hola")
	assert.Equal(t, ActionNone, reply.Action)
	assert.Equal(t, "Hecho", reply.Text)
}

func TestAssistantKeepsHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "respuesta"}
	svc := NewAssistantService(gen, testCatalog())
	ctx := context.Background()

	svc.Ask(ctx, 10, "primera pregunta")
	svc.Ask(ctx, 10, "segunda pregunta")

	require.Len(t, gen.calls, 2)
	// Second call carries the first exchange plus the new question.
	require.Len(t, gen.calls[1], 3)
	assert.Equal(t, "primera pregunta", gen.calls[1][0].Text)
	assert.Equal(t, "model", gen.calls[1][1].Role)

	svc.Reset(10)
	svc.Ask(ctx, 10, "tercera")
	require.Len(t, gen.calls[2], 1)
}

func TestAssistantFallbackOnError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("quota exceeded")}
	svc := NewAssistantService(gen, testCatalog())
	ctx := context.Background()

	reply := svc.Ask(ctx, 10, "quiero ver el menú")
	assert.Equal(t, ActionMenu, reply.Action)

	reply = svc.Ask(ctx, 10, "muéstrame mi carrito")
	assert.Equal(t, ActionCart, reply.Action)

	reply = svc.Ask(ctx, 10, "¿cuál es el horóscopo de hoy?")
	assert.Equal(t, ActionNone, reply.Action)
	assert.Contains(t, reply.Text, "/menu")
}
