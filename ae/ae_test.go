package ae

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dcmnet/ul/association"
	"github.com/dcmnet/ul/dulsm"
	"github.com/dcmnet/ul/presentation"
	"github.com/stretchr/testify/require"
)

const verificationSOPClassUID = "1.2.840.10008.1.1"

func TestListenAndServeEcho(t *testing.T) {
	contexts := []presentation.Proposal{{AbstractSyntax: verificationSOPClassUID, TransferSyntaxes: []string{"1.2.840.10008.1.2"}}}
	opts := dulsm.Options{ACSETimeout: 2 * time.Second, DIMSETimeout: 2 * time.Second}

	server := New(Config{AETitle: "SCP", SupportedContexts: contexts, Options: opts})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go server.Serve(ctx, ln)

	client, err := association.Associate(context.Background(), "tcp", ln.Addr().String(), "SCP", association.Config{
		LocalAETitle:      "SCU",
		SupportedContexts: contexts,
		Options:           opts,
	})
	require.NoError(t, err)

	status, err := client.SendCEcho(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 0, status.Status)

	require.NoError(t, client.Release(context.Background()))
}
