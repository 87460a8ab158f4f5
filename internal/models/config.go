package models

import (
	"path"

	"github.com/kardianos/osext"
)

// AppConfig is the application's main configuration structure
type AppConfig struct {
	// The directory where Evercal stores all of its data - defaults to the /data subdirectory of the folder, the
	// Evercal executable resides in
	DataDir string `json:"dataDir"`
	// The user accounts to seed the identity store with on startup
	Users []UserConfig `json:"users"`
	// The IP address to listen at - including the port number
	ListenAddress string `json:"listenAddress"`
}

// UserConfig describes one user account that will be registered with the identity store on startup
// In a later version, this will be replaced by a full user management
type UserConfig struct {
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

// GetDefaultConfig returns the default configuration values for the application
func GetDefaultConfig() (*AppConfig, error) {
	execDir, err := osext.ExecutableFolder()
	if err != nil {
		return nil, err
	}
	return &AppConfig{
		DataDir: path.Join(execDir, "data"),
		Users: []UserConfig{
			{
				Name:     "admin",
				FullName: "Administrator",
				Password: "changeme",
			},
		},
		ListenAddress: ":3000",
	}, nil
}
