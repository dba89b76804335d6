package out_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	focusout "tabfocus/internal/modules/focus/adapter/out"
	"tabfocus/internal/modules/focus/adapter/out/notifyrpc"
)

type scriptedNotifier struct {
	delivered bool
	reason    string
	titles    []string
}

func (s *scriptedNotifier) GetMetadata(context.Context, *notifyrpc.Empty) (*notifyrpc.Metadata, error) {
	return &notifyrpc.Metadata{Name: "scripted", Version: "0.0.1"}, nil
}

func (s *scriptedNotifier) Show(_ context.Context, in *notifyrpc.ShowRequest) (*notifyrpc.ShowResponse, error) {
	s.titles = append(s.titles, in.Title)
	return &notifyrpc.ShowResponse{Delivered: s.delivered, Error: s.reason}, nil
}

func dialNotifier(t *testing.T, impl notifyrpc.NotifierServer) notifyrpc.NotifierClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	notifyrpc.RegisterNotifierServer(srv, impl)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return notifyrpc.NewNotifierClient(conn)
}

func TestRPCNotifierDelivered(t *testing.T) {
	impl := &scriptedNotifier{delivered: true}
	n := focusout.NewRPCNotifier(dialNotifier(t, impl))

	require.NoError(t, n.Show(context.Background(), "Focus Reminder", "back to work"))
	assert.Equal(t, []string{"Focus Reminder"}, impl.titles)
}

func TestRPCNotifierNotDeliveredIsError(t *testing.T) {
	impl := &scriptedNotifier{delivered: false, reason: "no notification daemon"}
	n := focusout.NewRPCNotifier(dialNotifier(t, impl))

	err := n.Show(context.Background(), "Focus Reminder", "back to work")
	require.Error(t, err)
	assert.ErrorIs(t, err, focusout.ErrNotDelivered)
	assert.Contains(t, err.Error(), "no notification daemon")
}
