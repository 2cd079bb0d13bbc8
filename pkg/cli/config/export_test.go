package config

// Export private functions for testing
var LoadSourcesConfig = loadSourcesConfig
