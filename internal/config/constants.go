package config

// Lua schema field names and globals
const (
	luaGlobalUHA       = "uha"
	luaFieldProject    = "project"
	luaFieldBuild      = "build"
	luaFieldPublish    = "publish"
	luaFieldRegistry   = "registry"
	luaFieldParameters = "parameters"
	luaFieldName       = "name"
	luaFieldPatent     = "patent"
	luaFieldPlatforms  = "platforms"
	luaFieldPythons    = "python_versions"
	luaFieldBackendDir = "backend_dir"
	luaFieldStoreDir   = "store_dir"
	luaFieldRemote     = "remote"
	luaFieldBranch     = "branch"
	luaFieldBaseURL    = "base_url"
)

// Credential file names under the secrets directory.
const (
	githubTokenFile = "github_token"
	zenodoTokenFile = "zenodo_token"
)
