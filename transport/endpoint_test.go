package transport

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mixpanel/carbon/obserr"
)

func TestParseEndpoint(t *testing.T) {
	testCases := []struct {
		addr string
		host string
		port int
	}{
		{"graphite", "graphite", DefaultPort},
		{"graphite.example.com:2103", "graphite.example.com", 2103},
		{" 10.0.0.1 ", "10.0.0.1", DefaultPort},
		{"10.0.0.1:2004", "10.0.0.1", 2004},
		{"::1", "::1", DefaultPort},
		{"fe80::1:2", "fe80::1:2", DefaultPort},
		{"[::1]", "::1", DefaultPort},
		{"[::1]:2005", "::1", 2005},
	}

	for _, tc := range testCases {
		host, port, err := ParseEndpoint(tc.addr)
		require.NoError(t, err, tc.addr)
		assert.Equal(t, tc.host, host, tc.addr)
		assert.Equal(t, tc.port, port, tc.addr)
	}
}

func TestParseEndpointInvalid(t *testing.T) {
	for _, addr := range []string{
		"",
		"   ",
		"http://localhost:2003",
		":2003",
		"graphite:0",
		"graphite:65536",
		"graphite:carbon",
		"[nothost]",
		"a:b:c:d",
	} {
		_, _, err := ParseEndpoint(addr)
		require.Error(t, err, addr)
		assert.True(t, errors.Is(err, obserr.ErrInvalidConfiguration), addr)
	}
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	args := m.Called(ctx, host)
	ip, _ := args.Get(0).(net.IP)
	return ip, args.Error(1)
}

func TestResolveEndpointUsesResolver(t *testing.T) {
	resolver := &mockResolver{}
	resolver.On("Resolve", mock.Anything, "graphite").Return(net.ParseIP("10.1.2.3"), nil).Once()

	endpoint, err := ResolveEndpoint(context.Background(), resolver, "graphite:2004")
	require.NoError(t, err)
	assert.Equal(t, "graphite", endpoint.Host)
	assert.Equal(t, "10.1.2.3:2004", endpoint.String())
	assert.Equal(t, &net.UDPAddr{IP: net.ParseIP("10.1.2.3"), Port: 2004}, endpoint.Addr(Datagram))
	assert.Equal(t, &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 2004}, endpoint.Addr(Stream))
	resolver.AssertExpectations(t)
}

func TestResolveEndpointFailure(t *testing.T) {
	resolver := &mockResolver{}
	resolver.On("Resolve", mock.Anything, "nowhere").Return(nil, errors.New("no such host"))

	_, err := ResolveEndpoint(context.Background(), resolver, "nowhere")
	require.Error(t, err)
	assert.True(t, errors.Is(err, obserr.ErrResolutionFailure))

	var oe *obserr.Error
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "nowhere", oe.Get("host"))
}

func TestResolveEndpointNoAddress(t *testing.T) {
	resolver := &mockResolver{}
	resolver.On("Resolve", mock.Anything, "empty").Return(nil, nil)

	_, err := ResolveEndpoint(context.Background(), resolver, "empty")
	assert.True(t, errors.Is(err, obserr.ErrResolutionFailure))
}

func TestResolveEndpointInvalidSkipsResolver(t *testing.T) {
	resolver := &mockResolver{}

	_, err := ResolveEndpoint(context.Background(), resolver, "udp://graphite")
	assert.True(t, errors.Is(err, obserr.ErrInvalidConfiguration))
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestDNSResolverLiteral(t *testing.T) {
	ip, err := DNSResolver{}.Resolve(context.Background(), "192.0.2.10")
	require.NoError(t, err)
	assert.True(t, net.ParseIP("192.0.2.10").Equal(ip))
}

func TestDNSResolverLocalhost(t *testing.T) {
	ip, err := DNSResolver{}.Resolve(context.Background(), "localhost")
	require.NoError(t, err)
	assert.True(t, ip.IsLoopback())
}

func TestDNSResolverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DNSResolver{}.Resolve(ctx, "graphite.invalid")
	require.Error(t, err)
	assert.True(t, errors.Is(err, obserr.ErrResolutionFailure))
}

func TestParseMode(t *testing.T) {
	for s, expected := range map[string]Mode{"": Stream, "TCP": Stream, "stream": Stream, "udp": Datagram, "Datagram": Datagram} {
		mode, err := ParseMode(s)
		require.NoError(t, err, s)
		assert.Equal(t, expected, mode, s)
	}

	_, err := ParseMode("sctp")
	assert.True(t, errors.Is(err, obserr.ErrInvalidConfiguration))

	_, err = New(Mode("sctp"), Endpoint{}, Options{})
	assert.True(t, errors.Is(err, obserr.ErrInvalidConfiguration))
}
