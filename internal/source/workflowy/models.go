package workflowy

// authResponse is the login response carrying the session token.
type authResponse struct {
	SessionID string `json:"session_id"`
	Error     string `json:"error,omitempty"`
}

// treeDataResponse is the raw outline payload for one shared document.
type treeDataResponse struct {
	Items []treeItem `json:"items"`
}

type treeItem struct {
	ID       string `json:"id"`
	Name     string `json:"nm"`
	ParentID string `json:"prnt"`
	Note     string `json:"no,omitempty"`
	Priority int    `json:"pr"`
}

// initializationResponse resolves auxiliary project share ids referenced by
// the root document.
type initializationResponse struct {
	AuxiliaryShareIDs []string `json:"auxiliary_share_ids"`
}
