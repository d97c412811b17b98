package provider_mocks

//go:generate mockgen -source=../client.go -destination=provider_mocks.go -package=provider_mocks
