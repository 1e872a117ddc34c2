package main

import (
	"context"
	"os"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"github.com/messif/metrickernel/mcmn"
)

// bucketConfigMapName/bucketDSNKey name the ConfigMap and key an operator
// maintains out of band to hand messifd its bucket DSN without baking a
// credential into -config (spec's domain-stack wiring for k8s.io/client-go,
// exercised only behind -kube).
const (
	bucketConfigMapName = "messifd-bucket"
	bucketDSNKey        = "dsn"
	kubeNamespaceEnv    = "MESSIFD_NAMESPACE"
)

func discoverBucketDSNFromKube(ctx context.Context) (string, error) {
	cfg, err := rest.InClusterConfig()
	if err != nil {
		return "", mcmn.Wrap(err, "kube: in-cluster config")
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		return "", mcmn.Wrap(err, "kube: new clientset")
	}

	namespace := namespaceFromEnv()
	var cm *corev1.ConfigMap
	cm, err = clientset.CoreV1().ConfigMaps(namespace).Get(ctx, bucketConfigMapName, metav1.GetOptions{})
	if err != nil {
		return "", mcmn.Wrap(err, "kube: get configmap "+bucketConfigMapName)
	}
	dsn, ok := cm.Data[bucketDSNKey]
	if !ok {
		return "", mcmn.NewErrInvalidArgument("kube: configmap %s missing key %q", bucketConfigMapName, bucketDSNKey)
	}
	return dsn, nil
}

func namespaceFromEnv() string {
	if ns := os.Getenv(kubeNamespaceEnv); ns != "" {
		return ns
	}
	return "default"
}
