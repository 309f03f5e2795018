package assistant

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

// fakeContactStore records UpdateContactDetails calls; all other Store
// methods are unused in these tests.
type fakeContactStore struct {
	store.Store
	updates []store.UpdateContactDetailsParams
	failErr error
}

func (f *fakeContactStore) UpdateContactDetails(_ context.Context, arg store.UpdateContactDetailsParams) (*models.Contact, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.updates = append(f.updates, arg)
	return &models.Contact{ID: arg.ID, OrganisationID: arg.OrganisationID, Name: arg.Name, Email: arg.Email, Phone: arg.Phone}, nil
}

func testToolContext() ToolContext {
	return ToolContext{OrganisationID: "org_1", ContactID: "cont_1"}
}

func TestSaveContactDetailsUpdatesContact(t *testing.T) {
	st := &fakeContactStore{}
	handler := SaveContactDetailsHandler(st)

	out, err := handler(context.Background(), testToolContext(), json.RawMessage(`{"email":"a@b.com"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"a@b.com"}`, out)

	require.Len(t, st.updates, 1)
	assert.Equal(t, "cont_1", st.updates[0].ID)
	assert.Equal(t, "org_1", st.updates[0].OrganisationID)
	require.NotNil(t, st.updates[0].Email)
	assert.Equal(t, "a@b.com", *st.updates[0].Email)
	assert.Nil(t, st.updates[0].Name)
	assert.Nil(t, st.updates[0].Phone)
}

func TestSaveContactDetailsRejectsMalformedPayload(t *testing.T) {
	st := &fakeContactStore{}
	handler := SaveContactDetailsHandler(st)

	_, err := handler(context.Background(), testToolContext(), json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.Empty(t, st.updates)
}

func TestSaveContactDetailsRejectsEmptyPayload(t *testing.T) {
	st := &fakeContactStore{}
	handler := SaveContactDetailsHandler(st)

	_, err := handler(context.Background(), testToolContext(), json.RawMessage(`{}`))
	require.Error(t, err)
	assert.Empty(t, st.updates)
}

func TestDispatchEveryCallGetsOneOutput(t *testing.T) {
	st := &fakeContactStore{}
	registry := NewToolRegistry(zerolog.Nop())
	registry.Register(ToolSaveContactDetails, SaveContactDetailsHandler(st))

	calls := []ToolCall{
		{ID: "call_1", Name: ToolSaveContactDetails, Arguments: json.RawMessage(`{"email":"a@b.com"}`)},
		{ID: "call_2", Name: ToolSaveContactDetails, Arguments: json.RawMessage(`{broken`)},
		{ID: "call_3", Name: "summon_unicorn", Arguments: json.RawMessage(`{}`)},
	}

	outputs := registry.Dispatch(context.Background(), testToolContext(), calls)
	require.Len(t, outputs, len(calls))

	assert.Equal(t, "call_1", outputs[0].CallID)
	assert.JSONEq(t, `{"email":"a@b.com"}`, outputs[0].Output)

	// The malformed payload still produces an output, flagged as a failure.
	assert.Equal(t, "call_2", outputs[1].CallID)
	var failure map[string]any
	require.NoError(t, json.Unmarshal([]byte(outputs[1].Output), &failure))
	assert.Equal(t, false, failure["success"])

	// Unknown tools get the generic acknowledgement.
	assert.Equal(t, "call_3", outputs[2].CallID)
	assert.JSONEq(t, genericToolAck, outputs[2].Output)
}
