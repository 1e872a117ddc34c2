package bucket

import (
	"context"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/messif/metrickernel/mcmn"
)

// Open selects and constructs a Store from a DSN, whose scheme names the
// backing implementation (spec's SPEC_FULL.md domain-stack wiring):
//
//	buntdb://<path-or-:memory:>
//	s3://<bucket-name>
//	az://<service-url>/<container>   (anonymous credential; callers needing
//	                                   auth should construct AzureStore directly)
//	gs://<bucket-name>
//	hdfs://<namenode>/<root-path>
func Open(ctx context.Context, dsn string) (Store, error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, mcmn.NewErrInvalidArgument("bucket: malformed dsn %q", dsn)
	}

	switch scheme {
	case "buntdb":
		return OpenBunt(rest)
	case "s3":
		return OpenS3(ctx, rest)
	case "az":
		serviceURL, container, ok := strings.Cut(rest, "/")
		if !ok {
			return nil, mcmn.NewErrInvalidArgument("bucket: az dsn needs a container: %q", dsn)
		}
		return OpenAzure(serviceURL, azcore.TokenCredential(nil), container)
	case "gs":
		return OpenGCS(ctx, rest)
	case "hdfs":
		namenode, root, ok := strings.Cut(rest, "/")
		if !ok {
			namenode, root = rest, ""
		}
		return OpenHDFS(namenode, "/"+root)
	default:
		return nil, mcmn.NewErrInvalidArgument("bucket: unknown scheme %q", scheme)
	}
}
