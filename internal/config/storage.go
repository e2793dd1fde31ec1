package config

// StorageConfig selects where uploaded images are written and the limits
// applied to each upload.
type StorageConfig struct {
    Driver              string // "local" or "minio"
    LocalDir            string // directory served under /uploads for the local driver
    PublicBaseURL       string // prefix for URLs returned by the local driver
    MinioEndpoint       string
    MinioAccessKey      string
    MinioSecretKey      string
    MinioBucket         string
    MinioUseSSL         bool
    MaxFileBytes        int64
    MaxFilesPerRequest  int
    MaxPhotosPerListing int
}

func LoadStorageConfig() StorageConfig {
    return StorageConfig{
        Driver:              envStr("STORAGE_DRIVER", "local"),
        LocalDir:            envStr("UPLOAD_DIR", "uploads"),
        PublicBaseURL:       envStr("PUBLIC_BASE_URL", "http://localhost:4000"),
        MinioEndpoint:       envStr("MINIO_ENDPOINT", "localhost:9000"),
        MinioAccessKey:      envStr("MINIO_ACCESS_KEY", ""),
        MinioSecretKey:      envStr("MINIO_SECRET_KEY", ""),
        MinioBucket:         envStr("MINIO_BUCKET", "listing-photos"),
        MinioUseSSL:         envBool("MINIO_USE_SSL", false),
        MaxFileBytes:        envInt64("UPLOAD_MAX_FILE_BYTES", 5*1024*1024),
        MaxFilesPerRequest:  envInt("UPLOAD_MAX_FILES", 5),
        MaxPhotosPerListing: envInt("LISTING_MAX_PHOTOS", 5),
    }
}
