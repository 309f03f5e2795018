package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supportline-backend/internal/assistant"
	"supportline-backend/internal/integrations/email"
	"supportline-backend/internal/models"
	"supportline-backend/internal/store"
)

type fakeStore struct {
	store.Store

	conversations map[string]*models.Conversation
	organisations map[string]*models.Organisation
	saved         []store.SaveExchangeParams
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		conversations: map[string]*models.Conversation{},
		organisations: map[string]*models.Organisation{},
	}
}

func (f *fakeStore) GetConversationByID(_ context.Context, id string) (*models.Conversation, error) {
	conv, ok := f.conversations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *conv
	return &copied, nil
}

func (f *fakeStore) GetOrganisationByID(_ context.Context, id string) (*models.Organisation, error) {
	org, ok := f.organisations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *org
	return &copied, nil
}

func (f *fakeStore) SaveExchange(_ context.Context, arg store.SaveExchangeParams) error {
	f.saved = append(f.saved, arg)
	return nil
}

// scriptedProvider completes every run immediately and serves a fixed set of
// thread messages, newest first.
type scriptedProvider struct {
	replies   []assistant.ThreadMessage
	submitted int
	failRun   bool
}

func (p *scriptedProvider) CreateAssistant(context.Context, string, string) (string, error) {
	return "asst_test", nil
}

func (p *scriptedProvider) CreateThread(context.Context) (string, error) {
	return "thread_test", nil
}

func (p *scriptedProvider) UploadKnowledgeFile(context.Context, string, []byte) (string, error) {
	return "provfile_test", nil
}

func (p *scriptedProvider) Submit(_ context.Context, threadID, _, _ string) (assistant.RunHandle, error) {
	p.submitted++
	return assistant.RunHandle{ThreadID: threadID, RunID: "run_test"}, nil
}

func (p *scriptedProvider) Poll(context.Context, assistant.RunHandle) (assistant.RunStatus, error) {
	if p.failRun {
		return assistant.RunStatus{State: assistant.RunFailed}, nil
	}
	return assistant.RunStatus{State: assistant.RunCompleted}, nil
}

func (p *scriptedProvider) ResolveTools(_ context.Context, h assistant.RunHandle, _ []assistant.ToolOutput) (assistant.RunHandle, error) {
	return h, nil
}

func (p *scriptedProvider) FetchReplies(context.Context, string, int) ([]assistant.ThreadMessage, error) {
	return p.replies, nil
}

type recordingEmailSender struct {
	sent []email.TransactionalRequest
}

func (r *recordingEmailSender) SendTransactional(_ context.Context, req email.TransactionalRequest) error {
	r.sent = append(r.sent, req)
	return nil
}

func newTestConversationService(t *testing.T, st *fakeStore, provider *scriptedProvider, sender EmailSender) *ConversationService {
	t.Helper()
	log := zerolog.Nop()
	runner := assistant.NewRunner(provider, assistant.NewToolRegistry(log), time.Millisecond, time.Second, log)
	return NewConversationService(st, runner, NewNotificationService(sender, log), log)
}

func seedConversation(st *fakeStore, interrupted bool, lastMessageAt int64) (*models.Organisation, *models.Conversation) {
	org := &models.Organisation{
		ID:          "org_1111",
		Name:        "Acme",
		AssistantID: "asst_acme",
	}
	conv := &models.Conversation{
		ID:             "conv_1111",
		OrganisationID: org.ID,
		ContactID:      "cont_1111",
		Status:         models.ConversationOpen,
		Channel:        models.ChannelWeb,
		ThreadID:       "thread_acme",
		Interrupted:    interrupted,
		LastMessageAt:  lastMessageAt,
	}
	st.organisations[org.ID] = org
	st.conversations[conv.ID] = conv
	return org, conv
}

func TestHandleInboundMessageProducesOrderedExchange(t *testing.T) {
	st := newFakeStore()
	_, conv := seedConversation(st, false, 0)
	provider := &scriptedProvider{replies: []assistant.ThreadMessage{
		{Role: "assistant", Text: "Hello!"},
		{Role: "user", Text: "hi"},
	}}
	svc := newTestConversationService(t, st, provider, nil)

	outbound, err := svc.HandleInboundMessage(context.Background(), conv.ID, "hi", models.CreatorContact)
	require.NoError(t, err)
	require.Len(t, outbound, 1)
	assert.Equal(t, "Hello!", outbound[0].Message)
	assert.Equal(t, models.CreatorAgent, outbound[0].Creator)

	require.Len(t, st.saved, 1)
	saved := st.saved[0]
	require.Len(t, saved.Messages, 2)
	inbound := saved.Messages[0]
	assert.Equal(t, "hi", inbound.Text)
	assert.Equal(t, models.CreatorContact, inbound.Creator)
	assert.Equal(t, inbound.CreatedAt+1, outbound[0].CreatedAt)
	assert.Equal(t, outbound[0].CreatedAt, saved.LastMessageAt)
	assert.Nil(t, saved.SetInterrupted)
}

func TestHandleInboundMessageMultiPartRepliesAreChronological(t *testing.T) {
	st := newFakeStore()
	_, conv := seedConversation(st, false, 0)
	// Newest first from the provider; the caller gets chronological order.
	provider := &scriptedProvider{replies: []assistant.ThreadMessage{
		{Role: "assistant", Text: "second"},
		{Role: "assistant", Text: "first"},
		{Role: "user", Text: "hi"},
	}}
	svc := newTestConversationService(t, st, provider, nil)

	outbound, err := svc.HandleInboundMessage(context.Background(), conv.ID, "hi", models.CreatorContact)
	require.NoError(t, err)
	require.Len(t, outbound, 2)
	assert.Equal(t, "first", outbound[0].Message)
	assert.Equal(t, "second", outbound[1].Message)
	assert.Equal(t, outbound[0].CreatedAt+1, outbound[1].CreatedAt)
}

func TestHandleInboundMessageInterruptedSkipsAssistant(t *testing.T) {
	st := newFakeStore()
	_, conv := seedConversation(st, true, 0)
	provider := &scriptedProvider{}
	svc := newTestConversationService(t, st, provider, nil)

	outbound, err := svc.HandleInboundMessage(context.Background(), conv.ID, "anyone there?", models.CreatorContact)
	require.NoError(t, err)
	assert.Empty(t, outbound)
	assert.Zero(t, provider.submitted)

	require.Len(t, st.saved, 1)
	saved := st.saved[0]
	require.Len(t, saved.Messages, 1)
	assert.Equal(t, "anyone there?", saved.Messages[0].Text)
	// Already interrupted; no flip is written.
	assert.Nil(t, saved.SetInterrupted)
}

func TestHandleInboundMessageInterruptedKeepsStatus(t *testing.T) {
	st := newFakeStore()
	_, conv := seedConversation(st, true, 0)
	st.conversations[conv.ID].Status = models.ConversationClosed
	provider := &scriptedProvider{}
	svc := newTestConversationService(t, st, provider, nil)

	_, err := svc.HandleInboundMessage(context.Background(), conv.ID, "following up", models.CreatorContact)
	require.NoError(t, err)

	// A contact message on a closed, interrupted conversation must not
	// silently reopen it.
	require.Len(t, st.saved, 1)
	assert.Equal(t, models.ConversationClosed, st.saved[0].Status)
}

func TestHandleInboundMessageOperatorTakesOver(t *testing.T) {
	st := newFakeStore()
	org, conv := seedConversation(st, false, 0)
	notify := "ops@acme.test"
	org.NotificationEmail = &notify
	provider := &scriptedProvider{}
	sender := &recordingEmailSender{}
	svc := newTestConversationService(t, st, provider, sender)

	outbound, err := svc.HandleInboundMessage(context.Background(), conv.ID, "I'll take it from here", models.CreatorUser)
	require.NoError(t, err)
	assert.Empty(t, outbound)
	assert.Zero(t, provider.submitted)

	require.Len(t, st.saved, 1)
	require.NotNil(t, st.saved[0].SetInterrupted)
	assert.True(t, *st.saved[0].SetInterrupted)
	assert.Equal(t, models.ConversationOpen, st.saved[0].Status)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, templateTakeoverAlert, sender.sent[0].TransactionalID)
	assert.Equal(t, notify, sender.sent[0].Email)
}

func TestHandleInboundMessageTimestampsStayMonotonic(t *testing.T) {
	st := newFakeStore()
	// Conversation timeline runs ahead of the wall clock.
	future := time.Now().Add(time.Hour).UnixMilli()
	_, conv := seedConversation(st, false, future)
	provider := &scriptedProvider{replies: []assistant.ThreadMessage{
		{Role: "assistant", Text: "ok"},
	}}
	svc := newTestConversationService(t, st, provider, nil)

	outbound, err := svc.HandleInboundMessage(context.Background(), conv.ID, "hi", models.CreatorContact)
	require.NoError(t, err)
	require.Len(t, outbound, 1)

	inbound := st.saved[0].Messages[0]
	assert.Equal(t, future+1, inbound.CreatedAt)
	assert.Equal(t, future+2, outbound[0].CreatedAt)
}

func TestHandleInboundMessageRunFailurePersistsNothing(t *testing.T) {
	st := newFakeStore()
	_, conv := seedConversation(st, false, 0)
	provider := &scriptedProvider{failRun: true}
	svc := newTestConversationService(t, st, provider, nil)

	_, err := svc.HandleInboundMessage(context.Background(), conv.ID, "hi", models.CreatorContact)
	var runErr *assistant.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, assistant.RunFailed, runErr.State)
	assert.Empty(t, st.saved)
}

func TestHandleInboundMessageRejectsAgentCreator(t *testing.T) {
	svc := newTestConversationService(t, newFakeStore(), &scriptedProvider{}, nil)

	_, err := svc.HandleInboundMessage(context.Background(), "conv_1111", "hi", models.CreatorAgent)
	assert.ErrorIs(t, err, ErrInvalidCreator)
}

func TestHandleInboundMessageUnknownConversation(t *testing.T) {
	svc := newTestConversationService(t, newFakeStore(), &scriptedProvider{}, nil)

	_, err := svc.HandleInboundMessage(context.Background(), "conv_missing", "hi", models.CreatorContact)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
