package command

import "time"

// Response shapes of the httpkom API, as far as the CLI reads them.

type serverInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

type person struct {
	PersNo   int    `json:"pers_no"`
	PersName string `json:"pers_name"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type sessionInfo struct {
	ID     string     `json:"id" table:"wide"`
	Person person     `json:"person"`
	Client clientInfo `json:"client"`
}

type confType struct {
	RdProt         bool `json:"rd_prot"`
	Original       bool `json:"original"`
	Secret         bool `json:"secret"`
	Letterbox      bool `json:"letterbox"`
	AllowAnonymous bool `json:"allow_anonymous"`
	ForbidSecret   bool `json:"forbid_secret"`
}

type conferenceInfo struct {
	ConfNo         int      `json:"conf_no"`
	ConfName       string   `json:"conf_name"`
	Type           confType `json:"type" table:"wide"`
	HighestLocalNo int      `json:"highest_local_no"`
	Nice           int      `json:"nice"`
}

type adminSession struct {
	SessionID    string     `json:"session_id"`
	ServerID     string     `json:"server_id"`
	Person       person     `json:"person"`
	Client       clientInfo `json:"client" table:"wide"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessAt time.Time  `json:"last_access_at"`
}

type adminSessions struct {
	Count    int            `json:"count"`
	Sessions []adminSession `json:"sessions"`
}
