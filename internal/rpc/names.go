package rpc

// Call names served by StandardMethods and the dispatcher.
const (
	MethodAddURI             = "fetchd.addUri"
	MethodAddTorrent         = "fetchd.addTorrent"
	MethodAddMetalink        = "fetchd.addMetalink"
	MethodRemove             = "fetchd.remove"
	MethodChangeOption       = "fetchd.changeOption"
	MethodChangeGlobalOption = "fetchd.changeGlobalOption"
	MethodGetOption          = "fetchd.getOption"
	MethodGetGlobalOption    = "fetchd.getGlobalOption"
	MethodGetGlobalStat      = "fetchd.getGlobalStat"
	MethodTellStatus         = "fetchd.tellStatus"
	MethodTellActive         = "fetchd.tellActive"
	MethodTellWaiting        = "fetchd.tellWaiting"
	MethodTellStopped        = "fetchd.tellStopped"
	MethodChangePosition     = "fetchd.changePosition"
	MethodGetVersion         = "fetchd.getVersion"

	MethodMulticall   = "system.multicall"
	MethodListMethods = "system.listMethods"
)

// StandardMethods returns a table with every fetchd.* handler. The dispatcher
// adds the system.* methods.
func StandardMethods() *Methods {
	m := NewMethods()
	m.Register(MethodAddURI, MethodFunc(addURI))
	m.Register(MethodAddTorrent, MethodFunc(addTorrent))
	m.Register(MethodAddMetalink, MethodFunc(addMetalink))
	m.Register(MethodRemove, MethodFunc(removeTask))
	m.Register(MethodChangeOption, MethodFunc(changeOption))
	m.Register(MethodChangeGlobalOption, MethodFunc(changeGlobalOption))
	m.Register(MethodGetOption, MethodFunc(getOption))
	m.Register(MethodGetGlobalOption, MethodFunc(getGlobalOption))
	m.Register(MethodGetGlobalStat, MethodFunc(getGlobalStat))
	m.Register(MethodTellStatus, MethodFunc(tellStatus))
	m.Register(MethodTellActive, MethodFunc(tellActive))
	m.Register(MethodTellWaiting, MethodFunc(tellWaiting))
	m.Register(MethodTellStopped, MethodFunc(tellStopped))
	m.Register(MethodChangePosition, MethodFunc(changePosition))
	m.Register(MethodGetVersion, MethodFunc(getVersion))
	return m
}
