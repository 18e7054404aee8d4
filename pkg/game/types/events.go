package types

type ConnectPlayerEvent struct {
	ClientID uint32
}

type DisconnectPlayerEvent struct {
	ClientID uint32
}
