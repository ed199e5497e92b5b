package escl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeScannerStatusNoJobs(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<scan:ScannerStatus xmlns:scan="http://schemas.hp.com/imaging/escl/2011/05/03"
                     xmlns:pwg="http://www.pwg.org/schemas/2010/12/sm">
  <pwg:State>Idle</pwg:State>
</scan:ScannerStatus>`)

	st, err := DecodeScannerStatus(body)
	require.NoError(t, err)
	require.Empty(t, st.Jobs)
}

func TestDecodeScannerStatusWithJobs(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<scan:ScannerStatus xmlns:scan="http://schemas.hp.com/imaging/escl/2011/05/03"
                     xmlns:pwg="http://www.pwg.org/schemas/2010/12/sm">
  <pwg:State>Processing</pwg:State>
  <scan:Jobs>
    <scan:JobInfo>
      <pwg:JobUri>/eSCL/ScanJobs/1</pwg:JobUri>
      <scan:JobState>Processing</scan:JobState>
    </scan:JobInfo>
    <scan:JobInfo>
      <pwg:JobUri>/eSCL/ScanJobs/0</pwg:JobUri>
      <scan:JobState>Completed</scan:JobState>
    </scan:JobInfo>
  </scan:Jobs>
</scan:ScannerStatus>`)

	st, err := DecodeScannerStatus(body)
	require.NoError(t, err)
	require.Len(t, st.Jobs, 2)
	require.Equal(t, "/eSCL/ScanJobs/1", st.Jobs[0].URI)
	require.Equal(t, Processing, st.Jobs[0].State)
	require.Equal(t, Completed, st.Jobs[1].State)
}

func TestDecodeScannerStatusMissingJobState(t *testing.T) {
	body := []byte(`<?xml version="1.0"?>
<scan:ScannerStatus xmlns:scan="http://schemas.hp.com/imaging/escl/2011/05/03"
                     xmlns:pwg="http://www.pwg.org/schemas/2010/12/sm">
  <scan:Jobs>
    <scan:JobInfo>
      <pwg:JobUri>/eSCL/ScanJobs/1</pwg:JobUri>
    </scan:JobInfo>
  </scan:Jobs>
</scan:ScannerStatus>`)

	_, err := DecodeScannerStatus(body)
	require.Error(t, err)
}
