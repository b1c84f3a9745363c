package config

// BlobConfig configures the S3/MinIO object store for raw uploads.
type BlobConfig struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func loadBlobConfig() BlobConfig {
	return BlobConfig{
		Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:9000"),
		Region:    getEnv("S3_REGION", "us-east-1"),
		Bucket:    getEnv("S3_BUCKET", "astro-raw"),
		AccessKey: getEnv("S3_ACCESS_KEY", "minio"),
		SecretKey: getEnv("S3_SECRET_KEY", "minio123"),
		UseSSL:    getEnvBool("S3_USE_SSL", false),
	}
}
