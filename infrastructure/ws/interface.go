package ws

type IHub interface {
	Run()
	RegisterClient(conn *Conn)
	UnregisterClient(conn *Conn)
	SendToUser(userId int64, payload []byte) int
	SendToHandle(handle string, payload []byte) bool
	Count() int
	SetOnUnregister(callback func(conn *Conn))
}
